// Command demoapp serves the demo model over HTTP and exposes its
// operations on the command line.
//
//	demoapp serve
//	demoapp predict --demo_image cat.png --demo_audio meow.wav --demo_video cat.mp4
//	demoapp train --epoch_num 3
package main
