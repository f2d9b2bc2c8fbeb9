package malloc

import "fmt"

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}

func ceil(dividend, divisor int64) int64 {
	if dividend%divisor == 0 {
		return dividend / divisor
	}
	return (dividend / divisor) + 1
}
