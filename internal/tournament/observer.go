package tournament

import (
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
)

// Observer is notified after each accepted state change. Implementations must not call
// back into the tournament.
type Observer interface {
	ResultRecorded(id string, m playoff.Matchup)
	RoundAdvanced(id string, from, to playoff.Round)
	TournamentCompleted(id string, s Summary)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) ResultRecorded(string, playoff.Matchup)             {}
func (NopObserver) RoundAdvanced(string, playoff.Round, playoff.Round) {}
func (NopObserver) TournamentCompleted(string, Summary)                {}

// LogObserver writes tournament progress to a logrus logger.
type LogObserver struct {
	logger *logrus.Logger
}

func NewLogObserver(logger *logrus.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) ResultRecorded(id string, m playoff.Matchup) {
	fields := logrus.Fields{
		"tournament_id": id,
		"round":         m.Round.String(),
		"matchup_id":    m.ID,
		"winner":        m.Winner,
		"loser":         m.Loser(),
	}
	if m.Score != nil {
		fields["home_score"] = m.Score.Home
		fields["away_score"] = m.Score.Away
	}
	o.logger.WithFields(fields).Info("Recorded playoff result")
}

func (o *LogObserver) RoundAdvanced(id string, from, to playoff.Round) {
	o.logger.WithFields(logrus.Fields{
		"tournament_id": id,
		"from":          from.String(),
		"to":            to.String(),
	}).Info("Advanced playoff round")
}

func (o *LogObserver) TournamentCompleted(id string, s Summary) {
	o.logger.WithFields(logrus.Fields{
		"tournament_id": id,
		"champion":      s.Champion,
		"games_played":  s.TotalGamesPlayed,
	}).Info("Tournament complete")
}

// LogError reports an engine error at the level matching its severity: hard stops at
// error, soft warnings at warn.
func LogError(logger *logrus.Logger, id string, err error) {
	entry := logger.WithError(err).WithField("tournament_id", id)

	kind, ok := playoff.KindOf(err)
	if !ok {
		entry.Error("Tournament operation failed")
		return
	}
	entry = entry.WithFields(logrus.Fields{
		"kind":     kind.String(),
		"recovery": kind.Recovery().String(),
	})
	if kind.Severity() == playoff.SeveritySoftWarning {
		entry.Warn("Tournament operation failed")
		return
	}
	entry.Error("Tournament operation failed")
}
