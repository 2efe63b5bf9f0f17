package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultCountry is the country prefilled on a blank address.
const DefaultCountry = "Australia"

// AddressField names one editable field of an Address.
// Values match the JSON names used on the wire.
type AddressField string

const (
	AddressCompanyName AddressField = "companyName"
	AddressStreetName  AddressField = "streetName"
	AddressSuburbName  AddressField = "suburbName"
	AddressState       AddressField = "state"
	AddressPostalCode  AddressField = "postalCode"
	AddressCountry     AddressField = "country"
	AddressPhone       AddressField = "phone"
	AddressEmail       AddressField = "email"
)

// Address is a recipient's shipping address and contact details.
// It is a value type: every field is a string, so assignment is a full copy.
type Address struct {
	// CompanyName is optional.
	CompanyName string `json:"companyName"`

	// StreetName is the street line (e.g., "123 Main St").
	// A row "has an address" once this is non-empty.
	StreetName string `json:"streetName" validate:"required"`

	// SuburbName is the suburb or city.
	SuburbName string `json:"suburbName" validate:"required"`

	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`

	// Country defaults to DefaultCountry on a blank address.
	Country string `json:"country" validate:"required"`

	Phone string `json:"phone" validate:"required"`
	Email string `json:"email" validate:"required"`
}

// BlankAddress returns the empty address a new row starts with.
func BlankAddress() Address {
	return Address{Country: DefaultCountry}
}

// HasStreet reports whether the address has a street line.
// The editor affordance ("add address" vs "show address") keys off this alone.
func (a Address) HasStreet() bool {
	return a.StreetName != ""
}

// Set assigns value to the named field. It returns false for an unknown field.
func (a *Address) Set(field AddressField, value string) bool {
	switch field {
	case AddressCompanyName:
		a.CompanyName = value
	case AddressStreetName:
		a.StreetName = value
	case AddressSuburbName:
		a.SuburbName = value
	case AddressState:
		a.State = value
	case AddressPostalCode:
		a.PostalCode = value
	case AddressCountry:
		a.Country = value
	case AddressPhone:
		a.Phone = value
	case AddressEmail:
		a.Email = value
	default:
		return false
	}
	return true
}

var addressValidator = newAddressValidator()

func newAddressValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names so the editor can match them to its inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// MissingFields returns the JSON names of required fields that are empty,
// in field order. The result is advisory: committing an address never
// checks it.
func (a Address) MissingFields() []string {
	err := addressValidator.Struct(a)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return missing
}
