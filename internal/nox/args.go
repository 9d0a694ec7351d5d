package nox

// ListArgs returns the argument vector for a machine-readable session listing.
func ListArgs(exe string) []string {
	return []string{exe, "--list", "--json"}
}

// RunArgs returns the argument vector for a run request. Order is fixed:
// sessions, tags, keywords, python. Empty fields contribute nothing.
// RunArgs does not validate; callers check names first.
func RunArgs(exe string, req RunRequest) []string {
	argv := make([]string, 0, 1+2+len(req.Sessions)+len(req.Tags)+4)
	argv = append(argv, exe)
	if len(req.Sessions) > 0 {
		argv = append(argv, "-s")
		argv = append(argv, req.Sessions...)
	}
	if len(req.Tags) > 0 {
		argv = append(argv, "-t")
		argv = append(argv, req.Tags...)
	}
	if req.Keywords != "" {
		argv = append(argv, "-k", req.Keywords)
	}
	if req.Python != "" {
		argv = append(argv, "-p", req.Python)
	}
	return argv
}
