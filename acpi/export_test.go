package acpi

// ResetRegistration allows another Register call in tests.
func ResetRegistration() { registered.Store(false) }
