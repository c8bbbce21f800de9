package keyboard_client

const (
	// Default base URL of a locally running keyboard service
	DefaultBaseURL = "http://localhost:5000"

	// API Endpoints, relative to the locale prefix
	BufferStateEndpoint = "/get_current_input_buffer"
	TranslateEndpoint   = "/translate_braille"
	SubmitWordEndpoint  = "/submit_braille_word"
	ResetEndpoint       = "/reset"
)
