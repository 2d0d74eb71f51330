// Package trainer runs trainings of the model in the background. Each run
// gets a UUID, is persisted through its lifetime (running, then done,
// failed or cancelled) together with its per-epoch loss, and leaves a
// checkpoint behind when it finishes.
package trainer
