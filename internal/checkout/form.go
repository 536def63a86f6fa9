package checkout

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/avelis/shopfront/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,4}$`)

type Field struct {
	Value   string
	Touched bool
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AddressForm is one address group. Country and State reference the loaded
// reference data; States holds the region list for the selected country.
type AddressForm struct {
	Street  Field
	City    Field
	ZipCode Field
	Country *domain.Country
	State   *domain.State
	States  []domain.State
}

type Section string

const (
	SectionShipping Section = "shippingAddress"
	SectionBilling  Section = "billingAddress"
)

// Form is the structured checkout input: customer, shipping and billing
// addresses, plus the card widget's validity state, which is an external
// signal rather than a structured field.
type Form struct {
	regions RegionSource

	FirstName Field
	LastName  Field
	Email     Field
	Shipping  AddressForm
	Billing   AddressForm

	copyToBilling bool
	cardComplete  bool
	cardError     string
}

func NewForm(regions RegionSource) *Form {
	return &Form{regions: regions}
}

// PrefillEmail fills the email field from the identity provider. Anonymous
// shoppers leave it empty.
func (f *Form) PrefillEmail(ctx context.Context, identity Identity) {
	if identity == nil {
		return
	}
	user, err := identity.AuthenticatedUser(ctx)
	if err != nil || user == nil {
		return
	}
	f.Email.Value = user.Email
}

// SetCardState records the processor widget's change event: complete clears
// any prior message, an error message marks the card input invalid.
func (f *Form) SetCardState(complete bool, message string) {
	f.cardComplete = complete
	if complete {
		f.cardError = ""
	} else {
		f.cardError = message
	}
}

func (f *Form) CardValid() bool {
	return f.cardComplete && f.cardError == ""
}

func (f *Form) CardError() string {
	return f.cardError
}

// SelectCountry sets the section's country, loads its region list, and
// selects the first state as the default.
func (f *Form) SelectCountry(ctx context.Context, section Section, country domain.Country) error {
	states, err := f.regions.States(ctx, country.Code)
	if err != nil {
		return fmt.Errorf("load states for %s: %w", country.Code, err)
	}

	addr := f.Address(section)
	addr.Country = &country
	addr.States = states
	addr.State = nil
	if len(states) > 0 {
		addr.State = &states[0]
	}
	return nil
}

// SelectState picks a state from the section's loaded region list by display
// name. Names outside the list are ignored, leaving the default selection.
func (f *Form) SelectState(section Section, name string) {
	addr := f.Address(section)
	for i := range addr.States {
		if addr.States[i].Name == name {
			addr.State = &addr.States[i]
			return
		}
	}
}

// SetCopyToBilling mirrors shipping into billing while enabled. Disabling
// clears the billing fields and its region list rather than leaving the
// copied values behind.
func (f *Form) SetCopyToBilling(enabled bool) {
	f.copyToBilling = enabled
	if enabled {
		f.Billing = f.Shipping
		return
	}
	f.Billing = AddressForm{}
}

func (f *Form) CopyToBilling() bool {
	return f.copyToBilling
}

// Validate applies the per-field rules and reports every violation. It has no
// side effects; callers mark fields touched separately so messages display.
func (f *Form) Validate() []FieldError {
	var errs []FieldError
	errs = appendTextErrors(errs, "customer.firstName", f.FirstName.Value)
	errs = appendTextErrors(errs, "customer.lastName", f.LastName.Value)
	errs = appendEmailErrors(errs, "customer.email", f.Email.Value)
	errs = appendAddressErrors(errs, SectionShipping, &f.Shipping)
	errs = appendAddressErrors(errs, SectionBilling, &f.Billing)
	return errs
}

func (f *Form) Valid() bool {
	return len(f.Validate()) == 0
}

func (f *Form) MarkAllTouched() {
	for _, field := range f.fields() {
		field.Touched = true
	}
}

// Reset clears all entered values, touched flags, region lists, and the
// copy-to-billing toggle.
func (f *Form) Reset() {
	regions := f.regions
	*f = Form{regions: regions}
}

func (f *Form) Address(section Section) *AddressForm {
	if section == SectionBilling {
		return &f.Billing
	}
	return &f.Shipping
}

func (f *Form) fields() []*Field {
	return []*Field{
		&f.FirstName, &f.LastName, &f.Email,
		&f.Shipping.Street, &f.Shipping.City, &f.Shipping.ZipCode,
		&f.Billing.Street, &f.Billing.City, &f.Billing.ZipCode,
	}
}

// appendTextErrors applies the standard text rules: required, minimum length
// two, and not only whitespace. A whitespace-only value passes naive
// required/length checks, so it is rejected explicitly.
func appendTextErrors(errs []FieldError, name, value string) []FieldError {
	if value == "" {
		return append(errs, FieldError{Field: name, Message: "is required"})
	}
	if strings.TrimSpace(value) == "" {
		return append(errs, FieldError{Field: name, Message: "must not be only whitespace"})
	}
	if len(value) < 2 {
		return append(errs, FieldError{Field: name, Message: "must be at least 2 characters"})
	}
	return errs
}

func appendEmailErrors(errs []FieldError, name, value string) []FieldError {
	if value == "" {
		return append(errs, FieldError{Field: name, Message: "is required"})
	}
	if !emailPattern.MatchString(value) {
		return append(errs, FieldError{Field: name, Message: "must be a valid email address"})
	}
	return errs
}

func appendAddressErrors(errs []FieldError, section Section, addr *AddressForm) []FieldError {
	prefix := string(section)
	errs = appendTextErrors(errs, prefix+".street", addr.Street.Value)
	errs = appendTextErrors(errs, prefix+".city", addr.City.Value)
	if addr.State == nil {
		errs = append(errs, FieldError{Field: prefix + ".state", Message: "is required"})
	}
	if addr.Country == nil {
		errs = append(errs, FieldError{Field: prefix + ".country", Message: "is required"})
	}
	if addr.ZipCode.Value == "" {
		errs = append(errs, FieldError{Field: prefix + ".zipCode", Message: "is required"})
	}
	return errs
}
