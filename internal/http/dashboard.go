package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/katsura919/book-master-server/internal/database/requests"
	"github.com/katsura919/book-master-server/internal/entities"
)

// DashboardController serves the aggregate views behind the admin
// dashboard: status counts, date windows, charts, and borrower stats.
type DashboardController struct {
	requests *requests.Repository
}

func NewDashboardController(reqRepo *requests.Repository) *DashboardController {
	return &DashboardController{requests: reqRepo}
}

// RequestCounts tallies requests per status.
func (controller *DashboardController) RequestCounts(c *gin.Context) {
	counts, err := controller.requests.StatusCounts()
	if err != nil {
		respondInternalError(c, err, "request counts")
		return
	}

	var total int64
	for _, count := range counts {
		total += count
	}
	c.JSON(http.StatusOK, gin.H{
		"pending":  counts[entities.RequestStatusPending],
		"approved": counts[entities.RequestStatusApproved],
		"rejected": counts[entities.RequestStatusRejected],
		"overdue":  counts[entities.RequestStatusOverdue],
		"returned": counts[entities.RequestStatusReturned],
		"total":    total,
	})
}

// RequestDate reports today's, yesterday's, and the all-time request
// counts.
func (controller *DashboardController) RequestDate(c *gin.Context) {
	now := time.Now()
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	todayCount, err := controller.requests.CountCreatedBetween(today, tomorrow)
	if err != nil {
		respondInternalError(c, err, "request date counts")
		return
	}
	yesterdayCount, err := controller.requests.CountCreatedBetween(yesterday, today)
	if err != nil {
		respondInternalError(c, err, "request date counts")
		return
	}
	total, err := controller.requests.CountAll()
	if err != nil {
		respondInternalError(c, err, "request date counts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"today":     todayCount,
		"yesterday": yesterdayCount,
		"total":     total,
	})
}

// ChartData serves per-month request counts for the dashboard chart.
func (controller *DashboardController) ChartData(c *gin.Context) {
	counts, err := controller.requests.MonthlyChartData()
	if err != nil {
		respondInternalError(c, err, "chart data")
		return
	}
	c.JSON(http.StatusOK, gin.H{"chart_data": counts})
}

// Borrowers lists every borrower on record.
func (controller *DashboardController) Borrowers(c *gin.Context) {
	borrowers, err := controller.requests.Borrowers()
	if err != nil {
		respondInternalError(c, err, "list borrowers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"borrowers": borrowers, "count": len(borrowers)})
}

// BorrowersCount counts borrowers on record.
func (controller *DashboardController) BorrowersCount(c *gin.Context) {
	count, err := controller.requests.CountBorrowers()
	if err != nil {
		respondInternalError(c, err, "count borrowers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// BorrowerTypeDistribution tallies borrowers per type.
func (controller *DashboardController) BorrowerTypeDistribution(c *gin.Context) {
	distribution, err := controller.requests.BorrowerTypeDistribution()
	if err != nil {
		respondInternalError(c, err, "borrower type distribution")
		return
	}
	c.JSON(http.StatusOK, gin.H{"distribution": distribution})
}

// BorrowerRequests lists one borrower's requests.
func (controller *DashboardController) BorrowerRequests(c *gin.Context) {
	borrowerID := c.Param("borrowerId")
	if borrowerID == "" {
		respondBadRequest(c, "borrowerId is required")
		return
	}

	reqs, err := controller.requests.RequestsForBorrower(borrowerID)
	if err != nil {
		respondInternalError(c, err, "borrower requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs, "count": len(reqs)})
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
