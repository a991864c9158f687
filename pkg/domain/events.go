package domain

// NavigationHooks defines callbacks for navigator observability.
type NavigationHooks struct {
	// OnChange fires after the cursor moved.
	OnChange func(Cursor)
	// OnReload fires after a new deck replaced the old one.
	OnReload func(*Presentation, Cursor)
}
