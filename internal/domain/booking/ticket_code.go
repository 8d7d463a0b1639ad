package booking

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const (
	ticketCodePrefix       = "TKT-"
	ticketCodeSuffixLength = 9
	ticketCodeAlphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// TicketCodeGenerator はチケットコードを生成する関数
type TicketCodeGenerator func(now time.Time) (string, error)

// GenerateTicketCode は TKT-<UNIXミリ秒>-<英大文字数字9桁> 形式のコードを生成する
func GenerateTicketCode(now time.Time) (string, error) {
	suffix := make([]byte, ticketCodeSuffixLength)
	max := big.NewInt(int64(len(ticketCodeAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = ticketCodeAlphabet[n.Int64()]
	}
	return ticketCodePrefix + strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix), nil
}
