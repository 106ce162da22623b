// Command garagectl is the operator CLI: migrations, counter repair and
// offline totals.
package main

func main() {
	Execute()
}
