package daemon

// APIAddr exposes the bound HTTP address for tests.
func APIAddr(d *Daemon) string {
	return d.api.addr()
}
