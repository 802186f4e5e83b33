package repositories_test

import (
	"errors"
	"testing"
	"time"

	"todo-calendar/internal/models"
	"todo-calendar/internal/repositories"
	"todo-calendar/internal/testutil"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type RepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	users repositories.UserRepository
	tasks repositories.TaskRepository

	alice *models.User
	bob   *models.User
}

func (suite *RepositoryTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.users = repositories.NewUserRepository()
	suite.tasks = repositories.NewTaskRepository()

	suite.alice = testutil.CreateUser(suite.T(), suite.db, "alice", "password1")
	suite.bob = testutil.CreateUser(suite.T(), suite.db, "bobby", "password2")
}

func (suite *RepositoryTestSuite) TestFindByUsername() {
	user, err := suite.users.FindByUsername(suite.db, "alice")
	suite.Require().NoError(err)
	suite.Equal(suite.alice.ID, user.ID)

	_, err = suite.users.FindByUsername(suite.db, "nobody")
	suite.ErrorIs(err, repositories.ErrNotFound)
	suite.True(errors.Is(err, gorm.ErrRecordNotFound))
}

func (suite *RepositoryTestSuite) TestExists() {
	exists, err := suite.users.Exists(suite.db, "alice")
	suite.Require().NoError(err)
	suite.True(exists)

	exists, err = suite.users.Exists(suite.db, "carol")
	suite.Require().NoError(err)
	suite.False(exists)
}

func (suite *RepositoryTestSuite) TestCreateDuplicateUsername() {
	err := suite.users.Create(suite.db, &models.User{Username: "alice", Password: "x", Email: "a@b.cd"})
	suite.ErrorIs(err, repositories.ErrDuplicate)
}

func (suite *RepositoryTestSuite) TestListByUserOrderedAndScoped() {
	later := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	testutil.CreateTask(suite.T(), suite.db, suite.alice.ID, "later", later)
	testutil.CreateTask(suite.T(), suite.db, suite.alice.ID, "earlier", earlier)
	testutil.CreateTask(suite.T(), suite.db, suite.bob.ID, "not mine", earlier)

	tasks, err := suite.tasks.ListByUser(suite.db, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 2)
	suite.Equal("earlier", tasks[0].Content)
	suite.Equal("later", tasks[1].Content)
	suite.False(tasks[0].Done)
}

func (suite *RepositoryTestSuite) TestListByUserEmpty() {
	tasks, err := suite.tasks.ListByUser(suite.db, 9999)
	suite.Require().NoError(err)
	suite.NotNil(tasks)
	suite.Empty(tasks)
}

func (suite *RepositoryTestSuite) TestMarkDoneOnlyOwnedAndListed() {
	deadline := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	first := testutil.CreateTask(suite.T(), suite.db, suite.alice.ID, "first", deadline)
	second := testutil.CreateTask(suite.T(), suite.db, suite.alice.ID, "second", deadline)
	foreign := testutil.CreateTask(suite.T(), suite.db, suite.bob.ID, "foreign", deadline)

	affected, err := suite.tasks.MarkDone(suite.db, suite.alice.ID, []uint{first.ID, foreign.ID})
	suite.Require().NoError(err)
	suite.Equal(int64(1), affected)

	got, err := suite.tasks.FindOwned(suite.db, suite.alice.ID, first.ID)
	suite.Require().NoError(err)
	suite.True(got.Done)

	got, err = suite.tasks.FindOwned(suite.db, suite.alice.ID, second.ID)
	suite.Require().NoError(err)
	suite.False(got.Done)

	got, err = suite.tasks.FindOwned(suite.db, suite.bob.ID, foreign.ID)
	suite.Require().NoError(err)
	suite.False(got.Done)
}

func (suite *RepositoryTestSuite) TestMarkDoneEmptyList() {
	affected, err := suite.tasks.MarkDone(suite.db, suite.alice.ID, nil)
	suite.NoError(err)
	suite.Zero(affected)
}

func (suite *RepositoryTestSuite) TestDeleteOwned() {
	deadline := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	task := testutil.CreateTask(suite.T(), suite.db, suite.alice.ID, "mine", deadline)

	affected, err := suite.tasks.DeleteOwned(suite.db, suite.bob.ID, task.ID)
	suite.Require().NoError(err)
	suite.Zero(affected)

	_, err = suite.tasks.FindOwned(suite.db, suite.alice.ID, task.ID)
	suite.NoError(err)

	affected, err = suite.tasks.DeleteOwned(suite.db, suite.alice.ID, task.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(1), affected)

	_, err = suite.tasks.FindOwned(suite.db, suite.alice.ID, task.ID)
	suite.ErrorIs(err, repositories.ErrNotFound)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
