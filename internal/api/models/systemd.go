package models

// SystemdServiceStatus is the unit state of the JACK service.
type SystemdServiceStatus struct {
	Service string `json:"service" example:"jack.service" doc:"Unit name"`
	Status  string `json:"status" example:"active" doc:"Unit ActiveState (active, inactive, failed, ...)"`
}

// SystemdServiceStatusResponse wraps SystemdServiceStatus for API responses.
type SystemdServiceStatusResponse struct {
	Body SystemdServiceStatus
}

// SystemdServiceAction is the result of a unit start, stop or restart.
type SystemdServiceAction struct {
	Service string `json:"service" example:"jack.service" doc:"Unit name"`
	Action  string `json:"action" example:"restart" doc:"Action performed (start, stop, restart)"`
	Success bool   `json:"success" example:"true" doc:"Whether the job was queued"`
}

// SystemdServiceActionResponse wraps SystemdServiceAction for API responses.
type SystemdServiceActionResponse struct {
	Body SystemdServiceAction
}
