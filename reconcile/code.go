package reconcile

import (
	"context"
	"fmt"
	"society_tickets/constants"
	"society_tickets/model"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxCodeProbes = 32

type CodeProber interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// CodeGenerator draws booking codes such as "SS-7KQ2MZ4P". The probe only
// filters known codes; the unique index on attendees.code stays the final
// authority when two generators race.
type CodeGenerator struct {
	probe CodeProber
	draw  func() (string, error)
}

func NewCodeGenerator(probe CodeProber) *CodeGenerator {
	return &CodeGenerator{probe: probe, draw: drawCode}
}

func drawCode() (string, error) {
	body, err := gonanoid.Generate(constants.BOOKING_CODE_ALPHABET, constants.BOOKING_CODE_LENGTH)
	if err != nil {
		return "", err
	}
	return constants.BOOKING_CODE_PREFIX + body, nil
}

// Next returns a code not present in the attendee table at probe time.
func (g *CodeGenerator) Next(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeProbes; i++ {
		code, err := g.draw()
		if err != nil {
			return "", fmt.Errorf("draw booking code: %w", err)
		}
		exists, err := g.probe.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("probe booking code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free booking code after %d draws: %w", maxCodeProbes, model.ErrConflict)
}

// ValidCode reports whether s has the booking code shape.
func ValidCode(s string) bool {
	body, ok := strings.CutPrefix(s, constants.BOOKING_CODE_PREFIX)
	if !ok || len(body) != constants.BOOKING_CODE_LENGTH {
		return false
	}
	for _, r := range body {
		if !strings.ContainsRune(constants.BOOKING_CODE_ALPHABET, r) {
			return false
		}
	}
	return true
}
