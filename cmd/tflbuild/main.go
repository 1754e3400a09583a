// Command tflbuild prepares a TensorFlow Lite library for linking and prints
// the linkage directives for it.
package main

import "github.com/goplus/tflbuild/cmd/tflbuild/internal"

func main() {
	internal.Execute()
}
