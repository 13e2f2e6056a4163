package answers

import (
	"fmt"
	"iter"
	"math/rand/v2"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/souvenir/pkg/domain"
)

// Generator produces candidate wrong answers. The sequence may be empty,
// finite or infinite; it is consumed lazily.
type Generator[T any] func(r *rand.Rand) iter.Seq[T]

// Integers yields every value of lo, lo+step, ... up to hi in random order.
func Integers(lo, hi, step int) Generator[int] {
	if step <= 0 {
		step = 1
	}
	return func(r *rand.Rand) iter.Seq[int] {
		return func(yield func(int) bool) {
			if hi < lo {
				return
			}
			n := (hi-lo)/step + 1
			// Lazy Fisher-Yates over the index range.
			swapped := map[int]int{}
			at := func(i int) int {
				if v, ok := swapped[i]; ok {
					return v
				}
				return i
			}
			for i := range n {
				j := i + r.IntN(n-i)
				vi, vj := at(i), at(j)
				swapped[j] = vi
				if !yield(lo + vj*step) {
					return
				}
			}
		}
	}
}

// FormattedIntegers is Integers rendered through a fmt verb such as "%d" or "%02d".
func FormattedIntegers(lo, hi, step int, format string) Generator[string] {
	if format == "" {
		format = "%d"
	}
	ints := Integers(lo, hi, step)
	return func(r *rand.Rand) iter.Seq[string] {
		return func(yield func(string) bool) {
			for v := range ints(r) {
				if !yield(fmt.Sprintf(format, v)) {
					return
				}
			}
		}
	}
}

// Strings yields an endless stream of random strings of the given length
// drawn from charset.
func Strings(length int, charset string) Generator[string] {
	chars := []rune(charset)
	return func(r *rand.Rand) iter.Seq[string] {
		return func(yield func(string) bool) {
			if length <= 0 || len(chars) == 0 {
				return
			}
			var b strings.Builder
			for {
				b.Reset()
				for range length {
					b.WriteRune(chars[r.IntN(len(chars))])
				}
				if !yield(b.String()) {
					return
				}
			}
		}
	}
}

// Names of the generators available to catalog definitions.
const (
	GeneratorIntegers = "integers"
	GeneratorStrings  = "strings"
)

type integerParams struct {
	Min    int    `mapstructure:"min"`
	Max    int    `mapstructure:"max"`
	Step   int    `mapstructure:"step"`
	Format string `mapstructure:"format"`
}

type stringParams struct {
	Length  int    `mapstructure:"length"`
	Charset string `mapstructure:"charset"`
}

// FromSpec builds the text generator a definition refers to.
func FromSpec(spec *domain.GeneratorSpec) (Generator[string], error) {
	if spec == nil {
		return nil, nil
	}
	switch spec.Name {
	case GeneratorIntegers:
		p := integerParams{Step: 1}
		if err := mapstructure.WeakDecode(spec.Params, &p); err != nil {
			return nil, fmt.Errorf("generator %q: %w", spec.Name, err)
		}
		if p.Max < p.Min {
			return nil, fmt.Errorf("generator %q: max %d is below min %d", spec.Name, p.Max, p.Min)
		}
		return FormattedIntegers(p.Min, p.Max, p.Step, p.Format), nil
	case GeneratorStrings:
		var p stringParams
		if err := mapstructure.WeakDecode(spec.Params, &p); err != nil {
			return nil, fmt.Errorf("generator %q: %w", spec.Name, err)
		}
		if p.Length <= 0 || p.Charset == "" {
			return nil, fmt.Errorf("generator %q: length and charset are required", spec.Name)
		}
		return Strings(p.Length, p.Charset), nil
	default:
		return nil, fmt.Errorf("unknown answer generator %q", spec.Name)
	}
}
