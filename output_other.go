//go:build !linux

package main

const defaultOutputName = "miniaudio"
