package user

// Standard claim names served from a user record.
const (
	ClaimName        = "name"
	ClaimEmail       = "email"
	ClaimAddress     = "address"
	ClaimPhoneNumber = "phone_number"
)

type Address struct {
	Country       string `json:"country,omitempty"`
	Locality      string `json:"locality,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Region        string `json:"region,omitempty"`
	StreetAddress string `json:"street_address,omitempty"`
}

func (a *Address) toClaim() map[string]any {
	claim := make(map[string]any)
	for k, v := range map[string]string{
		"country":        a.Country,
		"locality":       a.Locality,
		"postal_code":    a.PostalCode,
		"region":         a.Region,
		"street_address": a.StreetAddress,
	} {
		if v != "" {
			claim[k] = v
		}
	}
	return claim
}

// User is a dummy user record standing in for a real identity store.
type User struct {
	Subject     string
	LoginID     string
	Password    string `json:"-"`
	Name        string
	Email       string
	Address     *Address
	PhoneNumber string
}

// Claim returns the value of a standard claim. Unsupported or empty claims
// report ok=false.
func (u *User) Claim(name string) (any, bool) {
	switch name {
	case ClaimName:
		return u.Name, u.Name != ""
	case ClaimEmail:
		return u.Email, u.Email != ""
	case ClaimAddress:
		if u.Address == nil {
			return nil, false
		}
		return u.Address.toClaim(), true
	case ClaimPhoneNumber:
		return u.PhoneNumber, u.PhoneNumber != ""
	default:
		return nil, false
	}
}

// Claims returns every non-empty standard claim of the user.
func (u *User) Claims() map[string]any {
	claims := make(map[string]any)
	for _, name := range []string{ClaimName, ClaimEmail, ClaimAddress, ClaimPhoneNumber} {
		if v, ok := u.Claim(name); ok {
			claims[name] = v
		}
	}
	return claims
}
