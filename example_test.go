package souvenir_test

import (
	"context"
	"fmt"
	"iter"
	"log"
	"time"

	"github.com/aretw0/souvenir"
	"github.com/aretw0/souvenir/pkg/adapters/memory"
	"github.com/aretw0/souvenir/pkg/catalog"
	"github.com/aretw0/souvenir/pkg/domain"
	"github.com/aretw0/souvenir/pkg/questions"
	"github.com/aretw0/souvenir/pkg/registry"
)

// ExampleNew wires a single already-solved module whose handler asks one
// question, and answers it from another goroutine.
func ExampleNew() {
	cat, err := catalog.New(domain.QuestionDef{
		ID:      "light_color",
		Module:  "Light",
		Layout:  domain.LayoutTwoColumns4,
		Type:    domain.AnswerText,
		Text:    "What color was the light in {0}?",
		Answers: []string{"red", "green", "blue", "white"},
	})
	if err != nil {
		log.Fatal(err)
	}

	reg := registry.NewRegistry()
	reg.Register("Light", func(ctx context.Context, h *questions.Handle) iter.Seq[domain.Step] {
		return func(yield func(domain.Step) bool) {
			h.MarkSolved()
			h.Add(h.Text("light_color", questions.Ask[string]{Correct: []string{"green"}}))
		}
	})

	bomb := memory.NewBomb("Light")
	bomb.Solve("Light")

	eng, err := souvenir.New(
		souvenir.WithCatalog(cat),
		souvenir.WithRegistry(reg),
		souvenir.WithBombState(bomb),
		souvenir.WithSeed(1),
		souvenir.WithTick(time.Millisecond),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	answered := make(chan struct{})
	go func() {
		defer close(answered)
		for {
			q, err := eng.Current(ctx)
			if err != nil {
				return
			}
			if q != nil {
				fmt.Println(q.Text)
				correct, _ := eng.Answer(ctx, q.Correct)
				fmt.Println("correct:", correct)
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	report, err := eng.Run(ctx, []domain.Module{{ID: "l1", Type: "Light", DisplayName: "Light"}})
	<-answered
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("presented:", report.Presented)

	// Output:
	// What color was the light in Light?
	// correct: true
	// presented: 1
}
