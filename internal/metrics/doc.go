// Package metrics records task, build, watch and reload activity.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so call sites never check for nil:
//
//	exec := task.NewExecutor(task.WithRecorder(rec))
//
// PrometheusRecorder registers its collectors on a caller-supplied registry;
// HTTPHandler exposes that registry for scraping (the preview server mounts
// it at /metrics).
package metrics
