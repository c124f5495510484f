package zones

import "fmt"

// AdministrativeUnit identifies one county or independent city in a utility
// territory. The ID is a 5-digit FIPS code: 2-digit state followed by
// 3-digit county. Units are immutable reference data enumerated in the
// territory config.
type AdministrativeUnit struct {
	ID   string
	Name string
}

// StateFIPS returns the 2-digit state portion of the unit ID.
func (u AdministrativeUnit) StateFIPS() string {
	return u.ID[:2]
}

// CountyFIPS returns the 3-digit county portion of the unit ID.
func (u AdministrativeUnit) CountyFIPS() string {
	return u.ID[2:]
}

// Validate checks the unit ID is a well-formed 5-digit FIPS code.
func (u AdministrativeUnit) Validate() error {
	if len(u.ID) != 5 {
		return fmt.Errorf("unit ID %q: want 5-digit state+county FIPS code", u.ID)
	}
	for _, r := range u.ID {
		if r < '0' || r > '9' {
			return fmt.Errorf("unit ID %q: non-digit character", u.ID)
		}
	}
	return nil
}
