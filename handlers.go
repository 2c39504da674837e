package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/models"
	"github.com/b2bbillings/b2bbillings-sub002/models/reports"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, utils.Response{
				Success: false,
				Data:    utils.ProcessValidationErrors(err),
				Message: "validation failed",
			})
			return false
		}
		c.JSON(http.StatusBadRequest, utils.Response{Success: false, Message: "invalid request body"})
		return false
	}
	return true
}

func paramId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, utils.Response{Success: false, Message: "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func queryIntPtr(c *gin.Context, name string) *int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

func queryDate(c *gin.Context, name string, def time.Time) time.Time {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	t, ok := utils.ParseDate(raw)
	if !ok {
		return def
	}
	return t
}

// --- auth ---

func loginHandler(c *gin.Context) {
	var input models.LoginInput
	if !bindJSON(c, &input) {
		return
	}
	token, user, err := models.Login(c.Request.Context(), &input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, gin.H{"token": token, "user": user})
}

func registerHandler(c *gin.Context) {
	var input models.NewUser
	if !bindJSON(c, &input) {
		return
	}
	user, err := models.CreateUser(c.Request.Context(), &input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondCreated(c, user)
}

// --- parties ---

func createPartyHandler(c *gin.Context) {
	var input models.NewParty
	if !bindJSON(c, &input) {
		return
	}
	party, err := models.CreateParty(c.Request.Context(), &input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondCreated(c, party)
}

func updatePartyHandler(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	var input models.NewParty
	if !bindJSON(c, &input) {
		return
	}
	party, err := models.UpdateParty(c.Request.Context(), id, &input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, party)
}

func deletePartyHandler(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	party, err := models.DeleteParty(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondMessage(c, party, "party deleted")
}

func getPartyHandler(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	party, err := models.GetParty(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, party)
}

func listPartiesHandler(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", utils.SearchLimitDefault)

	var name *string
	if s := c.Query("search"); s != "" {
		name = &s
	}
	var partyType *models.PartyType
	if s := c.Query("type"); s != "" {
		pt := models.PartyType(s)
		if !pt.Valid() {
			c.JSON(http.StatusBadRequest, utils.Response{Success: false, Message: "invalid party type"})
			return
		}
		partyType = &pt
	}

	parties, pagination, err := models.PaginateParties(c.Request.Context(), page, limit, name, partyType)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondPage(c, parties, pagination)
}

func partySummaryHandler(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	ctx, span := tracer.Start(c.Request.Context(), "partySummary")
	defer span.End()

	summary, err := models.GetPartySummary(ctx, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, summary)
}

func partyBalanceHandler(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	party, err := models.GetParty(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	balance, err := party.CurrentBalance(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, gin.H{
		"partyId":   party.ID,
		"balance":   balance,
		"formatted": utils.FormatINRCard(balance),
	})
}

// --- transactions ---

func createTransactionHandler(c *gin.Context) {
	var input models.NewBusinessTransaction
	if !bindJSON(c, &input) {
		return
	}
	txn, err := models.CreateBusinessTransaction(c.Request.Context(), &input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondCreated(c, txn)
}

func getTransactionHandler(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	txn, err := models.GetBusinessTransaction(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, txn)
}

func listTransactionsHandler(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", utils.SearchLimitDefault)

	var kind *models.TransactionKind
	if s := c.Query("kind"); s != "" {
		k := models.TransactionKind(s)
		kind = &k
	}
	var status *models.TransactionStatus
	if s := c.Query("status"); s != "" {
		st := models.TransactionStatus(s)
		status = &st
	}
	partyId := queryIntPtr(c, "partyId")

	txns, pagination, err := models.PaginateBusinessTransactions(c.Request.Context(), page, limit, kind, partyId, status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondPage(c, txns, pagination)
}

// --- payments ---

func createPaymentHandler(c *gin.Context) {
	var input models.NewPayment
	if !bindJSON(c, &input) {
		return
	}
	payment, err := models.CreatePayment(c.Request.Context(), &input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondCreated(c, payment)
}

func updatePaymentHandler(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	var input models.NewPayment
	if !bindJSON(c, &input) {
		return
	}
	payment, err := models.UpdatePayment(c.Request.Context(), id, &input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, payment)
}

type cancelPaymentRequest struct {
	Reason string `json:"reason"`
}

func deletePaymentHandler(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	var req cancelPaymentRequest
	// Body is optional; cancellation falls back to the default reason.
	_ = c.ShouldBindJSON(&req)

	payment, err := models.DeletePayment(c.Request.Context(), id, req.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondMessage(c, payment, "payment cancelled")
}

func getPaymentHandler(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	payment, err := models.GetPayment(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, payment)
}

func listPaymentsHandler(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", utils.SearchLimitDefault)

	partyId := queryIntPtr(c, "partyId")
	var paymentType *models.PaymentType
	if s := c.Query("type"); s != "" {
		pt := models.PaymentType(s)
		paymentType = &pt
	}
	var status *models.PaymentStatus
	if s := c.Query("status"); s != "" {
		st := models.PaymentStatus(s)
		status = &st
	}

	payments, pagination, err := models.PaginatePayments(c.Request.Context(), page, limit, partyId, paymentType, status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondPage(c, payments, pagination)
}

// --- bank accounts ---

func createBankAccountHandler(c *gin.Context) {
	var input models.NewBankAccount
	if !bindJSON(c, &input) {
		return
	}
	account, err := models.CreateBankAccount(c.Request.Context(), &input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondCreated(c, account)
}

func updateBankAccountHandler(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	var input models.NewBankAccount
	if !bindJSON(c, &input) {
		return
	}
	account, err := models.UpdateBankAccount(c.Request.Context(), id, &input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, account)
}

func getBankAccountHandler(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	account, err := models.GetBankAccount(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, account)
}

func listBankAccountsHandler(c *gin.Context) {
	accounts, err := models.ListBankAccounts(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, accounts)
}

// --- day book ---

func dayBookHandler(c *gin.Context) {
	asOf := queryDate(c, "asOf", time.Now())
	summary, rows, err := models.GetDayBook(c.Request.Context(), asOf)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, gin.H{"summary": summary, "transactions": rows})
}

func dayBookReportHandler(c *gin.Context) {
	now := time.Now()
	from := queryDate(c, "from", now.AddDate(0, -1, 0))
	to := queryDate(c, "to", now)
	partyId := queryIntPtr(c, "partyId")

	rows, err := reports.GetDayBookReport(c.Request.Context(), from, to, partyId)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, rows)
}

func dayBookExportHandler(c *gin.Context) {
	now := time.Now()
	from := queryDate(c, "from", now.AddDate(0, -1, 0))
	to := queryDate(c, "to", now)
	partyId := queryIntPtr(c, "partyId")

	rows, err := reports.GetDayBookReport(c.Request.Context(), from, to, partyId)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=daybook.xlsx")
	if err := reports.ExportDayBookExcel(c.Writer, rows); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "handlers.go", "dayBookExportHandler", "ExportDayBookExcel", nil, err)
	}
}
