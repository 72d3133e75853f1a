// Package schemes holds the catalog of government welfare schemes that the
// decision support engine recommends against.
package schemes

// Category groups schemes by the kind of benefit they provide
type Category string

const (
	CategoryAgriculture    Category = "agriculture"
	CategoryForest         Category = "forest"
	CategoryLivelihood     Category = "livelihood"
	CategoryInfrastructure Category = "infrastructure"
	CategorySocial         Category = "social"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryAgriculture, CategoryForest, CategoryLivelihood, CategoryInfrastructure, CategorySocial:
		return true
	}
	return false
}

// Scheme identifiers. Rules in pkg/dss are keyed by these.
const (
	PMKisan          = "pm-kisan"
	JalJeevanMission = "jal-jeevan-mission"
	MGNREGA          = "mgnrega"
	PMAYGramin       = "pradhan-mantri-awas-yojana-grameen"
	ForestRightsAct  = "forest-rights-act"
	KrishakBandhu    = "krishak-bandhu"
	SoilHealthCard   = "soil-health-card"
	PMFBY            = "pmfby"
)

// Scheme describes a government welfare or benefit program.
// Only ID and Category take part in scoring; the rest is informational.
type Scheme struct {
	ID                  string   `json:"id" yaml:"id"`
	Name                string   `json:"name" yaml:"name"`
	Description         string   `json:"description" yaml:"description"`
	EligibilityCriteria []string `json:"eligibility_criteria" yaml:"eligibility_criteria"`
	Benefits            string   `json:"benefits" yaml:"benefits"`
	ApplicationURL      string   `json:"application_url,omitempty" yaml:"application_url,omitempty"`
	ContactInfo         string   `json:"contact_info,omitempty" yaml:"contact_info,omitempty"`
	Category            Category `json:"category" yaml:"category"`
}

var catalog = []Scheme{
	{
		ID:          PMKisan,
		Name:        "PM-KISAN (Pradhan Mantri Kisan Samman Nidhi)",
		Description: "Income support scheme providing ₹6,000 per year to eligible farmer families",
		EligibilityCriteria: []string{
			"Small and marginal farmers",
			"Landholding up to 2 hectares",
			"Valid land ownership documents",
		},
		Benefits:       "₹6,000 per year in three equal installments",
		ApplicationURL: "https://pmkisan.gov.in/",
		ContactInfo:    "PM-KISAN Helpline: 155261",
		Category:       CategoryAgriculture,
	},
	{
		ID:          JalJeevanMission,
		Name:        "Jal Jeevan Mission",
		Description: "Aims to provide safe and adequate drinking water through individual household tap connections",
		EligibilityCriteria: []string{
			"Rural households",
			"No existing piped water connection",
			"Village-level implementation",
		},
		Benefits:       "Tap water connection to every rural household",
		ApplicationURL: "https://jaljeevanmission.gov.in/",
		ContactInfo:    "JJM Control Room: 011-24368023",
		Category:       CategoryInfrastructure,
	},
	{
		ID:          MGNREGA,
		Name:        "MGNREGA (Mahatma Gandhi National Rural Employment Guarantee Act)",
		Description: "Guarantees 100 days of employment per rural household per year",
		EligibilityCriteria: []string{
			"Adult members of rural households",
			"Willing to do unskilled manual work",
			"Valid job card",
		},
		Benefits:       "100 days guaranteed employment at minimum wages",
		ApplicationURL: "https://nrega.nic.in/",
		ContactInfo:    "MGNREGA Helpline: 1800-345-2244",
		Category:       CategoryLivelihood,
	},
	{
		ID:          PMAYGramin,
		Name:        "Pradhan Mantri Awas Yojana - Gramin",
		Description: "Provides assistance for construction of pucca houses with basic amenities",
		EligibilityCriteria: []string{
			"Rural households",
			"Homeless or inadequate housing",
			"Below poverty line families",
			"SC/ST, minorities, widows, disabled persons get priority",
		},
		Benefits:       "₹1.20 lakh assistance for construction of house in plain areas",
		ApplicationURL: "https://pmayg.nic.in/",
		ContactInfo:    "PMAY-G Helpline: 1800-11-6446",
		Category:       CategoryInfrastructure,
	},
	{
		ID:          ForestRightsAct,
		Name:        "Forest Rights Act Implementation Support",
		Description: "Support for implementation of community forest rights and livelihood activities",
		EligibilityCriteria: []string{
			"Scheduled Tribes and other traditional forest dwellers",
			"Evidence of forest dwelling for 75 years (before 2005)",
			"Dependence on forest for bonafide livelihood needs",
		},
		Benefits:       "Recognition of forest rights, community forest governance, livelihood support",
		ApplicationURL: "https://tribal.nic.in/",
		ContactInfo:    "Ministry of Tribal Affairs: 011-24016707",
		Category:       CategoryForest,
	},
	{
		ID:          KrishakBandhu,
		Name:        "Krishak Bandhu Scheme",
		Description: "Financial assistance to farmers and life insurance coverage",
		EligibilityCriteria: []string{
			"Small and marginal farmers",
			"Valid land documents",
			"Resident of eligible state",
		},
		Benefits:       "₹5,000 per acre per year + life insurance",
		ApplicationURL: "https://wb.gov.in/krishakbandhu/",
		ContactInfo:    "State Agriculture Department",
		Category:       CategoryAgriculture,
	},
	{
		ID:          SoilHealthCard,
		Name:        "Soil Health Card Scheme",
		Description: "Provides soil health cards to farmers with recommendations for appropriate nutrients",
		EligibilityCriteria: []string{
			"All farmers",
			"Own agricultural land",
		},
		Benefits:       "Free soil testing and nutrient recommendations",
		ApplicationURL: "https://soilhealth.dac.gov.in/",
		ContactInfo:    "Department of Agriculture: 1551",
		Category:       CategoryAgriculture,
	},
	{
		ID:          PMFBY,
		Name:        "Pradhan Mantri Fasal Bima Yojana",
		Description: "Crop insurance scheme providing financial support to farmers in case of crop failure",
		EligibilityCriteria: []string{
			"Farmers growing notified crops",
			"Sharecroppers and tenant farmers",
			"Premium payment",
		},
		Benefits:       "Insurance coverage against crop loss due to natural calamities",
		ApplicationURL: "https://pmfby.gov.in/",
		ContactInfo:    "PMFBY Helpline: 14447",
		Category:       CategoryAgriculture,
	},
}

var byID = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, s := range catalog {
		m[s.ID] = i
	}
	return m
}()

// All returns a copy of every scheme in catalog order
func All() []Scheme {
	out := make([]Scheme, len(catalog))
	for i, s := range catalog {
		out[i] = s.clone()
	}
	return out
}

// GetByID returns the scheme with the given id
func GetByID(id string) (Scheme, bool) {
	i, ok := byID[id]
	if !ok {
		return Scheme{}, false
	}
	return catalog[i].clone(), true
}

// ByCategory returns the schemes in a category, in catalog order
func ByCategory(category Category) []Scheme {
	out := []Scheme{}
	for _, s := range catalog {
		if s.Category == category {
			out = append(out, s.clone())
		}
	}
	return out
}

// IDs returns every scheme id in catalog order
func IDs() []string {
	ids := make([]string, len(catalog))
	for i, s := range catalog {
		ids[i] = s.ID
	}
	return ids
}

// Placeholder builds the descriptor used when a persisted scheme id is no
// longer present in the catalog.
func Placeholder(id, name string) Scheme {
	return Scheme{
		ID:                  id,
		Name:                name,
		Description:         "Scheme details not available",
		EligibilityCriteria: []string{},
		Benefits:            "Contact local authorities for details",
		Category:            CategorySocial,
	}
}

func (s Scheme) clone() Scheme {
	s.EligibilityCriteria = append([]string(nil), s.EligibilityCriteria...)
	return s
}
