package models

type Player struct {
	ID            int     `json:"id"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	DisplayName   *string `json:"display_name"`
	FirstNameHe   *string `json:"first_name_he"`
	LastNameHe    *string `json:"last_name_he"`
	DisplayNameHe *string `json:"display_name_he"`
	Image         *string `json:"image"`
	DateOfBirth   *string `json:"date_of_birth"`
	Height        *int    `json:"height"`
	Weight        *int    `json:"weight"`
	NationalityID *int    `json:"nationality_id"`
}

// PlayerUpdate carries the localized names an admin can edit. A nil
// NationalityID leaves the stored nationality unchanged.
type PlayerUpdate struct {
	FirstNameHe   string `json:"first_name_he"`
	LastNameHe    string `json:"last_name_he"`
	DisplayNameHe string `json:"display_name_he"`
	NationalityID *int   `json:"nationality_id"`
}
