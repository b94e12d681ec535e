package main

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qianlnk/houseguest/models"
	"github.com/qianlnk/houseguest/services"
	"github.com/qianlnk/houseguest/storage"
)

type server struct {
	sessions     *services.SessionManager
	saves        *services.SaveManager
	webSocketMgr *services.WebSocketManager
}

type gameView struct {
	ID        string           `json:"id"`
	CreatedAt int64            `json:"created_at"`
	State     models.GameState `json:"state"`
}

func viewOf(session *services.Session) gameView {
	return gameView{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
		State:     session.Engine.Snapshot(),
	}
}

func (s *server) routes(r *gin.Engine) {
	// WebSocket连接处理
	r.GET("/ws", s.handleWebSocket)

	// API路由组
	api := r.Group("/api")
	{
		// 游戏相关
		api.POST("/games", s.createGame)
		api.GET("/games", s.listGames)
		api.GET("/games/:id", s.getGame)
		api.DELETE("/games/:id", s.deleteGame)
		api.POST("/games/:id/reset", s.resetGame)
		api.GET("/games/:id/players/search", s.searchPlayers)

		// 每周流程
		api.POST("/games/:id/start", s.startGame)
		api.POST("/games/:id/hoh", s.completeHoh)
		api.POST("/games/:id/nominations", s.nominate)
		api.POST("/games/:id/veto", s.completeVeto)
		api.POST("/games/:id/veto/ceremony", s.vetoCeremony)
		api.POST("/games/:id/votes", s.castVote)
		api.POST("/games/:id/tiebreak", s.castTieBreak)
		api.POST("/games/:id/eviction", s.resolveEviction)
		api.POST("/games/:id/week", s.completeWeek)
		api.POST("/games/:id/jury", s.castJuryVote)
		api.POST("/games/:id/winner", s.crownWinner)

		// 社交
		api.POST("/games/:id/alliances", s.createAlliance)
		api.POST("/games/:id/proposals", s.proposeAlliance)
		api.POST("/games/:id/proposals/:pid/accept", s.acceptProposal)
		api.POST("/games/:id/proposals/:pid/reject", s.rejectProposal)
		api.POST("/games/:id/interactions", s.interact)

		// 存档
		api.GET("/saves", s.listSaves)
		api.POST("/saves/:slot", s.saveGame)
		api.POST("/saves/:slot/load", s.loadGame)
		api.DELETE("/saves/:slot", s.deleteSave)
	}
}

// statusFor 将业务错误映射为HTTP状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrGameNotFound),
		errors.Is(err, services.ErrProposalNotFound),
		errors.Is(err, services.ErrSaveNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidPhase),
		errors.Is(err, services.ErrGameNotStarted),
		errors.Is(err, services.ErrVotesPending),
		errors.Is(err, services.ErrTieBreakRequired),
		errors.Is(err, services.ErrDecisionRequired),
		errors.Is(err, services.ErrReplacementRequired):
		return http.StatusConflict
	case errors.Is(err, services.ErrVersionMismatch),
		errors.Is(err, services.ErrCorruptSave):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidPlayerID),
		errors.Is(err, services.ErrSelfInteraction),
		errors.Is(err, services.ErrNotInvitee),
		errors.Is(err, services.ErrEmptyAlliance),
		errors.Is(err, services.ErrNotEnoughPlayers),
		errors.Is(err, services.ErrNomineeCount),
		errors.Is(err, services.ErrIneligibleNominee),
		errors.Is(err, services.ErrIneligibleWinner),
		errors.Is(err, services.ErrIneligibleVoter),
		errors.Is(err, services.ErrNotNominee),
		errors.Is(err, storage.ErrEmptySlotKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// bindOptional 解析可选的请求体，空请求体不算错误
func bindOptional(c *gin.Context, obj interface{}) (bool, error) {
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// session 取出路径中的游戏，不存在时直接写入错误响应
func (s *server) session(c *gin.Context) (*services.Session, bool) {
	session, err := s.sessions.GetGame(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return session, true
}

func (s *server) handleWebSocket(c *gin.Context) {
	gameID := c.Query("game")
	if _, err := s.sessions.GetGame(gameID); err != nil {
		respondError(c, err)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("升级WebSocket连接失败: %v", err)
		return
	}
	s.webSocketMgr.RegisterConnection(gameID, ws)
}

func (s *server) createGame(c *gin.Context) {
	var req struct {
		HumanName string          `json:"human_name"`
		Players   []models.Player `json:"players"`
	}
	if _, err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := s.sessions.CreateGame(req.HumanName, req.Players)
	c.JSON(http.StatusCreated, viewOf(session))
}

func (s *server) listGames(c *gin.Context) {
	sessions := s.sessions.ListGames()
	games := make([]gameView, 0, len(sessions))
	for _, session := range sessions {
		games = append(games, viewOf(session))
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func (s *server) getGame(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(session))
}

func (s *server) deleteGame(c *gin.Context) {
	if err := s.sessions.DeleteGame(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) resetGame(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	session.Engine.ResetGame()
	c.JSON(http.StatusOK, viewOf(session))
}

func (s *server) searchPlayers(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": session.Engine.FindPlayer(c.Query("name"))})
}

func (s *server) startGame(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	if err := session.Controller.StartGame(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(session))
}

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

// winnerRequest 竞赛结果，winner_id 为空时模拟竞赛
type winnerRequest struct {
	WinnerID string `json:"winner_id"`
}

func (s *server) completeHoh(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req winnerRequest
	if _, err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	winner, err := session.Controller.CompleteHoh(req.WinnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hoh": winner, "game": viewOf(session)})
}

func (s *server) nominate(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	// nominee_ids 为空时由AI户主提名
	var req struct {
		NomineeIDs []string `json:"nominee_ids"`
	}
	if _, err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	nominees, err := session.Controller.Nominate(req.NomineeIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nominees": nominees, "game": viewOf(session)})
}

func (s *server) completeVeto(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req winnerRequest
	if _, err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	holder, err := session.Controller.CompleteVeto(req.WinnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"veto_holder": holder, "game": viewOf(session)})
}

func (s *server) vetoCeremony(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	// 空请求体或 auto 为真时由AI否决权持有者决定
	var req struct {
		services.VetoDecision
		Auto bool `json:"auto"`
	}
	present, err := bindOptional(c, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var decision *services.VetoDecision
	if present && !req.Auto {
		decision = &req.VetoDecision
	}
	applied, err := session.Controller.VetoCeremony(decision)
	if errors.Is(err, services.ErrReplacementRequired) && applied.Use {
		// AI持有者已决定，真人户主只需再提交 replacement_id
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "decision": applied})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decision": applied, "game": viewOf(session)})
}

func (s *server) castVote(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		VoterID   string `json:"voter_id" binding:"required"`
		NomineeID string `json:"nominee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := session.Controller.CastVote(req.VoterID, req.NomineeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(session))
}

func (s *server) castTieBreak(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		NomineeID string `json:"nominee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := session.Controller.CastTieBreak(req.NomineeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(session))
}

func (s *server) resolveEviction(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	result, err := session.Controller.ResolveEviction()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "game": viewOf(session)})
}

func (s *server) completeWeek(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	ended, err := session.Controller.CompleteWeek()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game_over": ended, "game": viewOf(session)})
}

func (s *server) castJuryVote(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		JurorID    string `json:"juror_id" binding:"required"`
		FinalistID string `json:"finalist_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := session.Controller.CastJuryVote(req.JurorID, req.FinalistID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(session))
}

func (s *server) crownWinner(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	result, err := session.Controller.CrownWinner()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "game": viewOf(session)})
}

func (s *server) createAlliance(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		Name    string   `json:"name" binding:"required"`
		Members []string `json:"members"`
		Secret  bool     `json:"secret"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alliance, err := session.Engine.CreateAlliance(req.Name, req.Members, req.Secret)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alliance)
}

func (s *server) proposeAlliance(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		Name       string   `json:"name" binding:"required"`
		ProposerID string   `json:"proposer_id" binding:"required"`
		Invitees   []string `json:"invitees"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proposal, err := session.Engine.ProposeAlliance(req.Name, req.ProposerID, req.Invitees)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

func (s *server) acceptProposal(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alliance, err := session.Engine.AcceptAlliance(c.Param("pid"), req.PlayerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alliance": alliance})
}

func (s *server) rejectProposal(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	// player_id 为空表示撤销整个邀请
	var req playerRequest
	if _, err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alliance, err := session.Engine.RejectAlliance(c.Param("pid"), req.PlayerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alliance": alliance})
}

func (s *server) interact(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		OwnerID string `json:"owner_id" binding:"required"`
		OtherID string `json:"other_id" binding:"required"`
		Delta   int    `json:"delta"`
		Mutual  bool   `json:"mutual"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var err error
	if req.Mutual {
		err = session.Engine.InteractMutual(req.OwnerID, req.OtherID, req.Delta)
	} else {
		err = session.Engine.Interact(req.OwnerID, req.OtherID, req.Delta)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(session))
}

func (s *server) listSaves(c *gin.Context) {
	slots, err := s.saves.Slots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

type saveRequest struct {
	GameID string `json:"game_id" binding:"required"`
}

func (s *server) saveGame(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := s.sessions.GetGame(req.GameID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.saves.Save(c.Request.Context(), session.Engine, c.Param("slot")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "保存成功", "slot": c.Param("slot")})
}

func (s *server) loadGame(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := s.sessions.GetGame(req.GameID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.saves.Load(c.Request.Context(), session.Engine, c.Param("slot")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(session))
}

func (s *server) deleteSave(c *gin.Context) {
	if err := s.saves.Delete(c.Request.Context(), c.Param("slot")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
