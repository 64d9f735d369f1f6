package order

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/example/ec-order-engine/internal/model"
)

var (
	postalCodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	phonePattern      = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

// NormalizeAddress trims every field
func NormalizeAddress(a model.Address) model.Address {
	return model.Address{
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		Region:     strings.TrimSpace(a.Region),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Phone:      strings.TrimSpace(a.Phone),
	}
}

// ValidateAddress checks a normalized delivery address
func ValidateAddress(a model.Address) error {
	switch {
	case a.Street == "":
		return fmt.Errorf("%w: street address is required", ErrInvalidAddress)
	case a.City == "":
		return fmt.Errorf("%w: city is required", ErrInvalidAddress)
	case a.Region == "":
		return fmt.Errorf("%w: state is required", ErrInvalidAddress)
	case !postalCodePattern.MatchString(a.PostalCode):
		return fmt.Errorf("%w: pincode must be 6 digits", ErrInvalidAddress)
	case !phonePattern.MatchString(a.Phone):
		return fmt.Errorf("%w: phone must be a valid 10-digit mobile number", ErrInvalidAddress)
	}
	return nil
}
