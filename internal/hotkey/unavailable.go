package hotkey

// Unavailable refuses every registration. Headless daemons use it, as do
// builds without a global hotkey backend.
type Unavailable struct {
	trigger chan Handle
}

func NewUnavailable() *Unavailable { return &Unavailable{trigger: make(chan Handle)} }

func (u *Unavailable) Triggered() <-chan Handle { return u.trigger }

func (u *Unavailable) Register(Combo) (Handle, error) { return 0, ErrUnavailable }

func (u *Unavailable) Unregister(Handle) error { return nil }
