// Command anychem trains and evaluates the chemistry
// models in this module.
package main

func main() {
	Execute()
}
