package assistant

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Houeta/recom-feed/internal/models"
)

// Responder produces the delay and the text of a simulated assistant reply.
type Responder interface {
	Reply(product models.Product) (time.Duration, string)
}

// ResponderFunc adapts an ordinary function to the Responder interface.
type ResponderFunc func(product models.Product) (time.Duration, string)

func (f ResponderFunc) Reply(product models.Product) (time.Duration, string) {
	return f(product)
}

// RandomResponder waits a uniformly drawn delay in [Min, Max] and quotes a random
// share of positive signals.
type RandomResponder struct {
	Min time.Duration
	Max time.Duration
}

// Reply implements Responder.
func (r RandomResponder) Reply(_ models.Product) (time.Duration, string) {
	delay := r.Min
	if spread := r.Max - r.Min; spread > 0 {
		delay += time.Duration(rand.Int64N(int64(spread) + 1)) //nolint:gosec // not security sensitive
	}

	percent := rand.IntN(101) //nolint:gosec,mnd // 0..100 percent
	text := fmt.Sprintf(
		"Good question - here's a quick tip: this product has %d%% positive signals from similar users.",
		percent,
	)

	return delay, text
}

func greeting(product models.Product) string {
	return fmt.Sprintf("Hi - I can help with %s. Ask me anything!", product.Title)
}
