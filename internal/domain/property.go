package domain

// Property is a rental unit owned by a landlord.
type Property struct {
	Meta     `bson:",inline"`
	Landlord string  `bson:"landlord" json:"landlord"`
	Title    string  `bson:"title,omitempty" json:"title,omitempty"`
	Address  Address `bson:"address" json:"address"`
	Type     string  `bson:"type,omitempty" json:"type,omitempty" validate:"omitempty,oneof=apartment house condo commercial land"`
	Status   string  `bson:"status" json:"status" validate:"oneof=vacant occupied maintenance listed"`
	Tenant   string  `bson:"tenant,omitempty" json:"tenant,omitempty"`
}

// Address is a postal address.
type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode string `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
	Country string `bson:"country" json:"country"`
}

func (p *Property) AssignOwner(pr Principal) { p.Landlord = pr.UserID }
func (p *Property) KeepOwner(prev *Property) { p.Landlord = prev.Landlord }

func (p *Property) ApplyDefaults() {
	if p.Status == "" {
		p.Status = "vacant"
	}
	if p.Address.Country == "" {
		p.Address.Country = "Philippines"
	}
}
