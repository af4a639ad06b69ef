package core

import (
	"context"

	log "github.com/sirupsen/logrus"
	"sklandapi/utils"
)

const missingTokenText = "缺少Token"

type Account struct {
	Name  string `yaml:"nickname" json:"nickname"`
	Token string `yaml:"token" json:"token"`
}

// AccountReport is the outcome of one account. Error is set when the auth
// chain failed, in which case Results is empty.
type AccountReport struct {
	Index    int                  `json:"index"`
	Name     string               `json:"name"`
	Nickname string               `json:"nickname"`
	Results  []utils.SignInResult `json:"results"`
	Error    string               `json:"error,omitempty"`
}

// RunAll processes accounts strictly in order. One account failing never
// stops the next one.
func (c *Client) RunAll(ctx context.Context, accounts []Account) []AccountReport {
	log.Infof("starting sign-in for %d account(s)", len(accounts))

	reports := make([]AccountReport, 0, len(accounts))
	for i, account := range accounts {
		report := AccountReport{Index: i + 1, Name: account.Name, Results: []utils.SignInResult{}}
		logger := log.WithField("account", account.Name)

		if account.Token == "" {
			logger.Error("no token configured")
			report.Error = missingTokenText
			accountRuns.WithLabelValues("error").Inc()
			reports = append(reports, report)
			continue
		}

		results, nickname, err := c.DoFullSignIn(ctx, account.Token)
		if err != nil {
			logger.Errorf("sign-in failed: %v", err)
			report.Error = err.Error()
			accountRuns.WithLabelValues("error").Inc()
			reports = append(reports, report)
			continue
		}

		if len(results) == 0 {
			logger.Warn("no bound roles found")
		}
		for _, r := range results {
			logger.WithFields(log.Fields{
				"game":     r.Game,
				"nickname": r.Nickname,
				"success":  r.Success,
			}).Infof("awards=%v error=%s", r.Awards, r.Error)
		}

		report.Nickname = nickname
		report.Results = results
		accountRuns.WithLabelValues("ok").Inc()
		reports = append(reports, report)
	}
	return reports
}
