package io

import (
	"sync"
)

type Producer interface {
	Produce(work chan<- int, wg *sync.WaitGroup)
}
