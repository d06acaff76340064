//go:build linux

package main

const defaultOutputName = "pulse"
