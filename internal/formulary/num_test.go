package formulary

import "testing"

func TestToNum(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "unit suffix", input: "1.5 kcal/mL", want: 1.5},
		{name: "empty", input: "", want: 0},
		{name: "non numeric", input: "abc", want: 0},
		{name: "thousands comma", input: "2,500", want: 2500},
		{name: "plain integer", input: "300", want: 300},
		{name: "leading spaces", input: "  63.8 g/L", want: 63.8},
		{name: "second token ignored", input: "1.2 1.5", want: 1.2},
		{name: "trailing garbage token", input: "1.5x", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToNum(tc.input); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}
