package core

import (
	"context"
	"fmt"

	fhttp "github.com/bogdanfinn/fhttp"
	log "github.com/sirupsen/logrus"
	"sklandapi/utils"
)

const noRoleData = "没有角色数据"

type attendanceRequest struct {
	GameID int    `json:"gameId"`
	UID    string `json:"uid"`
}

// SignArknights performs the single daily attendance of one binding.
// Failures are reported in the result, never returned.
func (c *Client) SignArknights(ctx context.Context, cred utils.Credential, binding utils.UserBinding) utils.SignInResult {
	result := utils.SignInResult{
		Game:     utils.GameArknights,
		Nickname: binding.Nickname,
		Channel:  binding.ChannelName,
		Awards:   []string{},
	}

	did, err := c.DeviceID(ctx)
	if err != nil {
		result.Error = err.Error()
		return recordResult(result)
	}

	body, err := marshalCompact(attendanceRequest{GameID: binding.GameID, UID: binding.UID})
	if err != nil {
		result.Error = err.Error()
		return recordResult(result)
	}

	headers := c.signedHeaders(cred, pathOf(utils.AttendanceURL), string(body), did)
	headers["Content-Type"] = []string{"application/json"}
	headers[fhttp.HeaderOrderKey] = append(headers[fhttp.HeaderOrderKey], "content-type")

	var resp utils.AttendanceResponse
	if err := c.request(ctx, fhttp.MethodPost, utils.AttendanceURL, headers, body, &resp); err != nil {
		result.Error = err.Error()
		return recordResult(result)
	}
	log.WithField("game", result.Game).Infof("%s attendance code=%d message=%s",
		binding.Nickname, intOr(resp.Code, -1), utils.StringOr(resp.Message, ""))

	if resp.Code == nil || *resp.Code != 0 {
		result.Error = utils.StringOr(resp.Message, unknownError)
		return recordResult(result)
	}

	result.Success = true
	if resp.Data != nil {
		for _, award := range resp.Data.Awards {
			var name *string
			if award.Resource != nil {
				name = award.Resource.Name
			}
			result.Awards = append(result.Awards, utils.FormatAward(name, award.Count))
		}
	}
	return recordResult(result)
}

// SignEndfield signs every role of the binding independently. A binding
// without roles yields one failed result.
func (c *Client) SignEndfield(ctx context.Context, cred utils.Credential, binding utils.UserBinding) []utils.SignInResult {
	if len(binding.Roles) == 0 {
		return []utils.SignInResult{recordResult(utils.SignInResult{
			Game:     utils.GameEndfield,
			Nickname: binding.Nickname,
			Channel:  binding.ChannelName,
			Awards:   []string{},
			Error:    noRoleData,
		})}
	}

	results := make([]utils.SignInResult, 0, len(binding.Roles))
	for _, role := range binding.Roles {
		results = append(results, recordResult(c.signEndfieldRole(ctx, cred, binding, role)))
	}
	return results
}

func (c *Client) signEndfieldRole(ctx context.Context, cred utils.Credential, binding utils.UserBinding, role utils.Role) utils.SignInResult {
	nickname := role.Nickname
	if nickname == "" {
		nickname = binding.Nickname
	}
	result := utils.SignInResult{
		Game:     utils.GameEndfield,
		Nickname: nickname,
		Channel:  binding.ChannelName,
		Awards:   []string{},
	}

	did, err := c.DeviceID(ctx)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	// the empty body is still part of the signature
	headers := c.signedHeaders(cred, pathOf(utils.EndfieldSignURL), "", did)
	headers["Content-Type"] = []string{"application/json"}
	headers["sk-game-role"] = []string{fmt.Sprintf("3_%s_%s", role.RoleID, role.ServerID)}
	headers["referer"] = []string{utils.EndfieldGameOrigin}
	headers["origin"] = []string{utils.EndfieldGameOrigin}
	headers[fhttp.HeaderOrderKey] = append(headers[fhttp.HeaderOrderKey],
		"content-type", "sk-game-role", "referer", "origin")

	var resp utils.EndfieldAttendanceResponse
	if err := c.request(ctx, fhttp.MethodPost, utils.EndfieldSignURL, headers, []byte{}, &resp); err != nil {
		result.Error = err.Error()
		return result
	}
	log.WithField("game", result.Game).Infof("%s attendance code=%d message=%s",
		nickname, intOr(resp.Code, -1), utils.StringOr(resp.Message, ""))

	if resp.Code == nil || *resp.Code != 0 {
		result.Error = utils.StringOr(resp.Message, unknownError)
		return result
	}

	result.Success = true
	if resp.Data != nil {
		for _, award := range resp.Data.AwardIDs {
			info, ok := resp.Data.ResourceInfoMap[string(award.ID)]
			if !ok {
				continue
			}
			result.Awards = append(result.Awards, utils.FormatAward(info.Name, info.Count))
		}
	}
	return result
}

// DoFullSignIn walks the whole chain for one user token. Chain failures are
// returned; per-game failures are part of the results. The nickname is the
// one of the first retained binding.
func (c *Client) DoFullSignIn(ctx context.Context, userToken string) ([]utils.SignInResult, string, error) {
	code, err := c.GetAuthorization(ctx, userToken)
	if err != nil {
		return nil, "", err
	}

	cred, err := c.GetCredential(ctx, code)
	if err != nil {
		return nil, "", err
	}

	bindings, err := c.GetBindings(ctx, cred)
	if err != nil {
		return nil, "", err
	}
	if len(bindings) == 0 {
		return []utils.SignInResult{}, "", nil
	}

	results := make([]utils.SignInResult, 0, len(bindings))
	for _, binding := range bindings {
		switch binding.AppCode {
		case utils.AppArknights:
			results = append(results, c.SignArknights(ctx, cred, binding))
		case utils.AppEndfield:
			results = append(results, c.SignEndfield(ctx, cred, binding)...)
		}
	}
	return results, bindings[0].Nickname, nil
}

// CheckStatus reports per game whether today's attendance is done. It signs
// in as a side effect; any chain failure reports every game as not signed.
func (c *Client) CheckStatus(ctx context.Context, userToken string) (map[string]bool, string) {
	status := map[string]bool{
		utils.AppArknights: false,
		utils.AppEndfield:  false,
	}

	results, nickname, err := c.DoFullSignIn(ctx, userToken)
	if err != nil {
		log.Warnf("status check failed: %v", err)
		return status, ""
	}

	for _, r := range results {
		switch r.Game {
		case utils.GameArknights:
			status[utils.AppArknights] = r.SignedToday()
		case utils.GameEndfield:
			status[utils.AppEndfield] = r.SignedToday()
		}
	}
	return status, nickname
}
