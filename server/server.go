package server

// Server is a transport-agnostic contract for the process's listener.
type Server interface {
	Options() Options
	Run() error
	Stop() error
}
