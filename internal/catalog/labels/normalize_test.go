package labels

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "comunicacion", Key("  Comunicación "))
	assert.Equal(t, "comunicacion", Key("COMUNICACIÓN"))
	assert.Equal(t, "diseno arquitectonico", Key("Diseño   Arquitectónico"))
	assert.Equal(t, "", Key("   "))
}

func TestNormalize_Empty(t *testing.T) {
	for _, in := range []string{"", "  ", "nan", "None", " NULL ", "<NA>", ",, ,"} {
		assert.Equal(t, "", Normalize(in), "input %q", in)
	}
}

func TestNormalize_AccentAndCaseInsensitive(t *testing.T) {
	want := "Comunicación"
	assert.Equal(t, want, Normalize("comunicasion"))
	assert.Equal(t, want, Normalize("Comunicación"))
	assert.Equal(t, want, Normalize("COMUNICACIÓN"))
}

func TestNormalize_Examples(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Diseño ,diseño, DISEÑO ", "Diseño"},
		{"difucion", "Difusión"},
		{"diseño arquitectonico, diseño", "Diseño, Diseño arquitectónico"},
		{"gestion, comunicacion", "Comunicación, Gestión"},
		{"memoria/archivo cedram", "Memoria/archivo CEDRAM"},
		{"Memoria archivo PAP", "Memoria/archivo PAP"},
		{"productos teatrales, teatro", "Productos teatrales"},
		{"infra", "Infraestructura"},
		{"fotografía, nan", "Fotografía"},
		{"otra  cosa,Otra cosa", "Otra cosa"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalize_UnmatchedKeepsRestOfCasing(t *testing.T) {
	assert.Equal(t, "MAPAS antiguos", Normalize("mAPAS antiguos"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"", "comunicasion", "  Diseño ,diseño, DISEÑO ", "zeta, alfa, Beta",
		"financiamiento, vinculacion, difusion, mantenimiento",
		"arquitectura, diseno", "ñandú, Ñandú", "x,y,,z", "NaN, gestión",
	}
	inputs = append(inputs, Categories...)
	inputs = append(inputs, Subcategories...)
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_SortedAndUnique(t *testing.T) {
	out := Normalize("vinculacion, gestion, zzz, Gestión, aaa, difusion, AAA")
	tokens := strings.Split(out, Separator)
	require.NotEmpty(t, tokens)
	for i := 1; i < len(tokens); i++ {
		assert.Less(t, tokens[i-1], tokens[i], "tokens out of order or duplicated: %q", out)
	}
}

func TestNormalize_VocabularyIsFixedPoint(t *testing.T) {
	for _, l := range append(append([]string{}, Categories...), Subcategories...) {
		assert.Equal(t, l, Normalize(l))
	}
}

func TestTags(t *testing.T) {
	assert.Nil(t, Default().Tags(""))
	assert.Equal(t, []string{"Comunicación", "Gestión"}, Default().Tags("Gestión, comunicasion, gestion"))
}

func TestCanonicalPeriod(t *testing.T) {
	cases := map[string]string{
		"primavera":  Spring,
		"PRIMAVERA":  Spring,
		"Primavera ": Spring,
		"verano":     Summer,
		"Otono":      Fall,
		"OTOÑO":      Fall,
		"fall":       Fall,
		"":           "",
		"nan":        "",
		"invierno":   "Invierno",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalPeriod(in), "input %q", in)
	}
	assert.True(t, IsPeriod(" otoño"))
	assert.False(t, IsPeriod("invierno"))
}
