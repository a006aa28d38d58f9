package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"spaces to underscores", "Maria Lopez", "maria_lopez"},
		{"multiple spaces collapse", "Maria   Del  Mar", "maria_del_mar"},
		{"accents dropped", "José Muñoz", "jos_muoz"},
		{"symbols dropped", "O'Brien (Jr.)", "obrien_jr"},
		{"hyphen kept", "Ana-Maria", "ana-maria"},
		{"leading and trailing space", "  Ana  ", "ana"},
		{"empty falls back", "", "cliente"},
		{"only symbols falls back", "¿¿??", "cliente"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeName(tc.in))
		})
	}
}

func TestIdentityLabel(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"NIE with X prefix", "X1234567L", labelNIE},
		{"NIE with Y prefix", "Y7654321Z", labelNIE},
		{"NIE lowercase prefix", "z0011223A", labelNIE},
		{"passport", "AAB123456", labelPassport},
		{"too few digits", "X123456L", labelPassport},
		{"too many digits", "X12345678L", labelPassport},
		{"empty", "", labelPassport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, identityLabel(tc.in))
		})
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "a1b2c3d4", shortID("a1b2c3d4-e5f6-7890"))
	assert.Equal(t, "short", shortID("short"))
}
