package model

type Medicine struct {
	Base
	Name         string `db:"name" json:"name"`
	Category     string `db:"category" json:"category,omitempty"`
	Manufacturer string `db:"manufacturer" json:"manufacturer,omitempty"`
	Unit         string `db:"unit" json:"unit,omitempty"`
	Stock        int    `db:"stock" json:"stock"`
	Description  string `db:"description" json:"description,omitempty"`
}

type CreateMedicineRequest struct {
	Name         string `json:"name" binding:"required"`
	Category     string `json:"category"`
	Manufacturer string `json:"manufacturer"`
	Unit         string `json:"unit"`
	Stock        int    `json:"stock" binding:"gte=0"`
	Description  string `json:"description"`
}

type UpdateMedicineRequest struct {
	Name         *string `json:"name"`
	Category     *string `json:"category"`
	Manufacturer *string `json:"manufacturer"`
	Unit         *string `json:"unit"`
	Stock        *int    `json:"stock" binding:"omitempty,gte=0"`
	Description  *string `json:"description"`
}
