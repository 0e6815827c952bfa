package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wfunc/coinflip/game"
	"github.com/wfunc/coinflip/logger"
	"github.com/wfunc/coinflip/network"
	"github.com/wfunc/coinflip/session"
)

func (s *GameServer) handleMessage(sess *session.Session, data []byte) {
	start := time.Now()

	env, err := network.DecodeEnvelope(data)
	if err != nil {
		s.reply(sess, network.NewError("invalid message format"))
		return
	}
	s.monitor.IncMessagesReceived(metricLabel(env.Type))
	defer func() { s.monitor.ObserveMessageLatency(time.Since(start)) }()

	switch env.Type {
	case network.MsgTypeAuth:
		err = s.game.Authenticate(sess.GetID(), env.PlayerID, env.Balance)
	case network.MsgTypeFindOpponent:
		err = s.game.RequestMatch(sess.GetID(), env.BetAmount)
	case network.MsgTypeMakeBet:
		err = s.game.SubmitBet(sess.GetID(), env.Bet)
	case network.MsgTypeCancelSearch:
		err = s.game.CancelSearch(sess.GetID())
	case network.MsgTypePing:
		s.reply(sess, network.Pong{Type: network.MsgTypePong, Timestamp: time.Now().UnixMilli()})
	default:
		err = fmt.Errorf("unknown command: %s", env.Type)
	}

	if err == nil || game.IsStructural(err) {
		return
	}

	var (
		gameErr  game.Error
		stakeErr game.StakeRangeError
	)
	if errors.As(err, &gameErr) || errors.As(err, &stakeErr) {
		logger.Log.Debugf("session %s %s rejected: %v", sess.GetID(), env.Type, err)
	} else {
		logger.Log.Infof("session %s: %v", sess.GetID(), err)
	}
	s.reply(sess, network.NewError(err.Error()))
}

// metricLabel keeps client-chosen type strings out of the label set.
func metricLabel(msgType string) string {
	switch msgType {
	case network.MsgTypeAuth, network.MsgTypeFindOpponent, network.MsgTypeMakeBet,
		network.MsgTypeCancelSearch, network.MsgTypePing:
		return msgType
	}
	return "unknown"
}

func (s *GameServer) reply(sess *session.Session, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Errorf("marshal reply: %v", err)
		return
	}
	if err := sess.Send(data); err != nil {
		logger.Log.Debugf("reply to %s: %v", sess.GetID(), err)
	}
}
