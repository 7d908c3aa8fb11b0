// Package directory serves the organizational hierarchy of the operator:
// companies, their districts and the neighborhoods inside each district. The
// hierarchy is strict; every district belongs to exactly one company and
// every neighborhood to exactly one district. Entities are read-only here;
// their lifecycle belongs to the provisioning backend.
package directory

// Company is the top level of the organizational hierarchy.
type Company struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// District belongs to exactly one company.
type District struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	CompanyID int64  `json:"company_id"`
}

// Neighborhood belongs to exactly one district.
type Neighborhood struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	DistrictID int64  `json:"district_id"`
}

// DefaultListLimit caps directory list fetches issued by the scope store.
const DefaultListLimit = 100
