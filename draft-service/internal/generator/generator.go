// Package generator turns a rendered instruction prompt into email text.
package generator

import (
	"context"
	"errors"
	"fmt"
)

// Mode selects sampled or deterministic decoding.
type Mode string

const (
	ModeSampled       Mode = "sampled"
	ModeDeterministic Mode = "deterministic"
)

// Decoding controls how the model produces tokens.
type Decoding struct {
	MaxNewTokens int
	Temperature  float64
	TopP         float64
	Mode         Mode
}

// DefaultDecoding is deterministic with a short output budget.
func DefaultDecoding() Decoding {
	return Decoding{
		MaxNewTokens: 200,
		Temperature:  0.3,
		TopP:         0.9,
		Mode:         ModeDeterministic,
	}
}

func (d Decoding) Validate() error {
	if d.MaxNewTokens <= 0 {
		return fmt.Errorf("max_new_tokens must be positive, got %d", d.MaxNewTokens)
	}
	switch d.Mode {
	case ModeDeterministic:
	case ModeSampled:
		if d.Temperature <= 0 || d.Temperature > 2 {
			return fmt.Errorf("temperature must be in (0, 2] for sampled decoding, got %v", d.Temperature)
		}
		if d.TopP <= 0 || d.TopP > 1 {
			return fmt.Errorf("top_p must be in (0, 1], got %v", d.TopP)
		}
	default:
		return fmt.Errorf("unknown decoding mode %q", d.Mode)
	}
	return nil
}

// ErrEmptyOutput is returned when the model produced no text.
var ErrEmptyOutput = errors.New("model returned no text")

// Generator runs inference. Implementations return only newly produced text,
// never the echoed prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, d Decoding) (string, error)
	Model() string
}

// Pinger is implemented by generators that can check backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
