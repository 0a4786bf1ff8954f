// Command apptask-demo supervises three sample tasks sharing one counter:
// one that succeeds, one that fails once before succeeding and one that
// panics after a delay.
package main

func main() {
	Execute()
}
