package utils

// ResponseData is the uniform JSON envelope for every REST response.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded bridges service errors into the recovery middleware.
// Handlers stay thin; typed errors surface with their own status codes.
func PanicIfNeeded(err any, message ...string) {
	if err != nil {
		if len(message) > 0 && err == "record not found" {
			panic(message[0])
		}
		panic(err)
	}
}
