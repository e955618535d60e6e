package checkout

import (
	"regexp"
	"strings"

	"github.com/kanchiweave/storefront/internal/models"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern   = regexp.MustCompile(`^[0-9]{10}$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

func validateUserDetails(u models.UserDetails) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(u.FirstName) == "" {
		errs["first_name"] = "first name is required"
	}
	email := strings.TrimSpace(u.Email)
	if email == "" {
		errs["email"] = "email is required"
	} else if !emailPattern.MatchString(email) {
		errs["email"] = "enter a valid email address"
	}
	phone := strings.ReplaceAll(u.Phone, " ", "")
	if phone == "" {
		errs["phone"] = "phone number is required"
	} else if !phonePattern.MatchString(phone) {
		errs["phone"] = "phone number must be exactly 10 digits"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateAddress(selectedID string, addr *models.Address) map[string]string {
	if selectedID != "" {
		return nil
	}
	if addr == nil {
		return map[string]string{"address": "select a saved address or add a new one"}
	}

	errs := map[string]string{}
	if strings.TrimSpace(addr.Area) == "" {
		errs["area"] = "area is required"
	}
	if strings.TrimSpace(addr.TownCity) == "" {
		errs["town_city"] = "town/city is required"
	}
	if strings.TrimSpace(addr.State) == "" {
		errs["state"] = "state is required"
	}
	if strings.TrimSpace(addr.Country) == "" {
		errs["country"] = "country is required"
	}
	pin := strings.TrimSpace(addr.Pincode)
	if pin == "" {
		errs["pincode"] = "pincode is required"
	} else if !pincodePattern.MatchString(pin) {
		errs["pincode"] = "pincode must be exactly 6 digits"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validatePayment(method string) map[string]string {
	switch method {
	case PaymentCOD, PaymentOnline:
		return nil
	case "":
		return map[string]string{"payment_method": "select a payment method"}
	default:
		return map[string]string{"payment_method": "unsupported payment method"}
	}
}
