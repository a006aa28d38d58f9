package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
)

func TestClassify_Keywords(t *testing.T) {
	cases := []struct {
		name string
		text string
		want model.CaseProfile
	}{
		{"asylum keyword", "Quiero pedir asilo en España", model.CaseProfileAsylum},
		{"arraigo keyword", "necesito informacion sobre arraigo social", model.CaseProfileArraigo},
		{"student keyword", "soy estudiante y quiero renovar", model.CaseProfileStudent},
		{"irregular keyword", "mi situacion es irregular", model.CaseProfileIrregular},
		{"case insensitive", "ASILO por favor", model.CaseProfileAsylum},
		{"no keyword", "hola, buenos dias", model.CaseProfileOther},
		{"empty text", "", model.CaseProfileOther},
		{"keyword inside word does not match", "asilodromo", model.CaseProfileOther},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.text))
		})
	}
}
