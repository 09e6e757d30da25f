package screener

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/flowscan/internal/contracts"
)

var validate = validator.New()

// Request describes one screen or streak run.
// Zero values take the rule defaults (date: today KST, window: default_days).
type Request struct {
	Market contracts.Market `json:"market" validate:"required,oneof=KOSPI KOSDAQ"`
	Date   time.Time        `json:"date"`
	Window int              `json:"window" validate:"omitempty,min=2,max=5"`

	// Thresholds in 억원; 0 keeps the configured floor
	MajorEok float64 `json:"major_eok" validate:"omitempty,gt=0"`
	MinorEok float64 `json:"minor_eok" validate:"omitempty,gt=0"`
}

// Validate checks the request fields
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", contracts.ErrInvalidRequest, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		if e.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", e.Field(), e.Tag(), e.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", e.Field(), e.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", contracts.ErrInvalidRequest, strings.Join(msgs, "; "))
}
