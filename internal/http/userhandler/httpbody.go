package userhandler

type SwitchDepartmentBody struct {
	DepartmentID int64 `json:"department_id" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
