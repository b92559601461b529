package query

// runStreaming implements the non-materialized path: stream tuples
// straight through Where → Project → When → Limit → Sink, no temp file
// (spec.md §4.6).
func runStreaming(cfg Config, driver *joinDriver, state any) error {
	buf := rowBuffer(cfg)
	emitted := 0

	for {
		ok, err := driver.next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if cfg.Where != nil && !cfg.Where(driver.row) {
			continue
		}

		cont, err := sinkRow(cfg, driver.row, buf, &emitted, state)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return nil
}
