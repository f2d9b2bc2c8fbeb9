package main

import "flag"
import "fmt"
import "math/rand"
import "unsafe"

import "github.com/JMJTC/memorypool/lib"
import "github.com/JMJTC/memorypool/malloc"

var options struct {
	minblock int64
	maxblock int64
	rounds   int
	pretty   bool
}

func argParse() {
	flag.Int64Var(&options.minblock, "minblock", 32,
		"smallest request size to exercise")
	flag.Int64Var(&options.maxblock, "maxblock", 64*1024,
		"largest request size to exercise")
	flag.IntVar(&options.rounds, "rounds", 100000,
		"number of allocate/deallocate cycles to run")
	flag.BoolVar(&options.pretty, "pretty", false,
		"print the stats map as indented JSON instead of compact JSON")
	flag.Parse()
}

func main() {
	argParse()
	driveAllocations()
	cc := malloc.TheCentralCache()
	cc.LogUtilization()
	fmt.Println(lib.Prettystats(cc.Stats(), options.pretty))
}

// driveAllocations churns through a spread of request sizes between
// minblock and maxblock, mimicking an application that never settles on
// one object size. main reports utilization afterwards.
func driveAllocations() {
	tc := malloc.NewThreadCache()
	defer tc.Release()

	spread := options.maxblock - options.minblock

	type loan struct {
		ptr  unsafe.Pointer
		size int64
	}
	var held []loan
	for i := 0; i < options.rounds; i++ {
		size := options.minblock
		if spread > 0 {
			size += rand.Int63n(spread)
		}
		ptr, ok := tc.Allocate(size)
		if !ok {
			fmt.Printf("allocation of %v bytes failed at round %v\n", size, i)
			break
		}
		held = append(held, loan{ptr, size})
		if len(held) > 64 {
			l := held[0]
			tc.Deallocate(l.ptr, l.size)
			held = held[1:]
		}
	}
	for _, l := range held {
		tc.Deallocate(l.ptr, l.size)
	}
}
