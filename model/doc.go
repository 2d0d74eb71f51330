// Package model is the placeholder model served by demoapp. Train sleeps
// through a number of epochs reporting a made up loss, and Predict echoes
// its arguments back together with mock labels and probabilities. A real
// model replaces the bodies of Train and Predict and keeps their signatures.
package model
