package dto

// CreateStudentRequest registers a new student. Balance is always zero on
// creation and cannot be supplied.
type CreateStudentRequest struct {
	NIS        string `json:"nis" validate:"required,max=32"`
	Name       string `json:"name" validate:"required,max=128"`
	ClassLabel string `json:"class_label" validate:"required,max=16"`
	Category   string `json:"category" validate:"omitempty,max=64"`
}

// UpdateStudentRequest patches identity fields; nil fields are left as is.
type UpdateStudentRequest struct {
	NIS        *string `json:"nis" validate:"omitempty,max=32"`
	Name       *string `json:"name" validate:"omitempty,max=128"`
	ClassLabel *string `json:"class_label" validate:"omitempty,max=16"`
	Category   *string `json:"category" validate:"omitempty,max=64"`
}
