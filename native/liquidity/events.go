package liquidity

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"minepool/core/types"
)

const (
	EventTypeDeposited      = "liquidity.deposited"
	EventTypePoolListed     = "liquidity.pool_listed"
	EventTypeAdded          = "liquidity.added"
	EventTypeRemoved        = "liquidity.removed"
	EventTypeRewardsClaimed = "liquidity.rewards_claimed"
)

func eventAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newDepositEvent(subject [20]byte, index uint64, amount *big.Int, day uint64) *types.Event {
	return &types.Event{Type: EventTypeDeposited, Attributes: map[string]string{
		"subject":  hex.EncodeToString(subject[:]),
		"position": strconv.FormatUint(index, 10),
		"amount":   eventAmount(amount),
		"day":      DayString(day),
	}}
}

func newPoolListedEvent(pool *Pool, tokenAmount *big.Int) *types.Event {
	pool = pool.Normalize()
	return &types.Event{Type: EventTypePoolListed, Attributes: map[string]string{
		"day":          DayString(pool.ListedDay),
		"ethTotal":     eventAmount(pool.ListedEthTotal),
		"tokenAmount":  eventAmount(tokenAmount),
		"mintedShares": eventAmount(pool.MintedShares),
	}}
}

func newAddedEvent(subject [20]byte, index uint64, ethAmount, tokenAmount, shares *big.Int) *types.Event {
	return &types.Event{Type: EventTypeAdded, Attributes: map[string]string{
		"subject":     hex.EncodeToString(subject[:]),
		"position":    strconv.FormatUint(index, 10),
		"ethAmount":   eventAmount(ethAmount),
		"tokenAmount": eventAmount(tokenAmount),
		"shares":      eventAmount(shares),
	}}
}

func newRemovedEvent(subject [20]byte, index uint64, share, tokenOut, ethOut *big.Int) *types.Event {
	return &types.Event{Type: EventTypeRemoved, Attributes: map[string]string{
		"subject":  hex.EncodeToString(subject[:]),
		"position": strconv.FormatUint(index, 10),
		"share":    eventAmount(share),
		"tokenOut": eventAmount(tokenOut),
		"ethOut":   eventAmount(ethOut),
	}}
}

func newRewardsClaimedEvent(subject [20]byte, amount *big.Int, fromDay, toDay uint64) *types.Event {
	return &types.Event{Type: EventTypeRewardsClaimed, Attributes: map[string]string{
		"subject": hex.EncodeToString(subject[:]),
		"amount":  eventAmount(amount),
		"fromDay": DayString(fromDay),
		"toDay":   DayString(toDay),
	}}
}
