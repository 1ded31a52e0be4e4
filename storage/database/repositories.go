package database

import (
	"github.com/trezcool/pta/core/class"
	"github.com/trezcool/pta/core/expense"
	"github.com/trezcool/pta/core/parent"
	"github.com/trezcool/pta/core/payment"
	"github.com/trezcool/pta/core/report"
	"github.com/trezcool/pta/core/school"
	"github.com/trezcool/pta/core/student"
	"github.com/trezcool/pta/core/user"
)

// Repositories gathers one implementation of every domain Repository, sharing the same store.
type Repositories struct {
	School  school.Repository
	User    user.Repository
	Class   class.Repository
	Parent  parent.Repository
	Student student.Repository
	Payment payment.Repository
	Expense expense.Repository
	Report  report.Repository
}
